package connections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pidev-project/pidev/pkg/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "connections.json"))
}

func testConn(name string) models.ConnectionDescriptor {
	return models.ConnectionDescriptor{
		Name:     name,
		Host:     name + ".local",
		User:     "pi",
		Password: "raspberry",
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := tempStore(t)
	list, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStoreRoundTrip(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Add(testConn("bench")))
	require.NoError(t, store.Add(testConn("attic")))

	list, err := store.Load()
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := store.Get("attic")
	require.NoError(t, err)
	assert.Equal(t, "attic.local", got.Host)
}

func TestStoreAddReplacesByName(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Add(testConn("bench")))

	edited := testConn("bench")
	edited.Host = "192.168.1.20"
	require.NoError(t, store.Add(edited))

	list, err := store.Load()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "192.168.1.20", list[0].Host)
}

func TestStoreAddPreservesDefaultAcrossEdit(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Add(testConn("attic")))
	require.NoError(t, store.Add(testConn("bench")))
	require.NoError(t, store.SetDefault("bench"))

	edited := testConn("bench")
	edited.Host = "192.168.1.20"
	require.NoError(t, store.Add(edited))

	def, err := store.Default()
	require.NoError(t, err)
	assert.Equal(t, "bench", def.Name)
	assert.Equal(t, "192.168.1.20", def.Host)
}

func TestStoreAddRejectsInvalidDescriptor(t *testing.T) {
	store := tempStore(t)

	bad := testConn("bench")
	bad.Password = ""
	err := store.Add(bad)
	assert.ErrorIs(t, err, models.ErrAuthConfig)
}

func TestStoreFirstConnectionBecomesDefault(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Add(testConn("bench")))

	def, err := store.Default()
	require.NoError(t, err)
	assert.Equal(t, "bench", def.Name)
}

func TestStoreExactlyOneDefault(t *testing.T) {
	store := tempStore(t)

	a := testConn("attic")
	a.IsDefault = true
	b := testConn("bench")
	b.IsDefault = true
	require.NoError(t, store.Save([]models.ConnectionDescriptor{b, a}))

	list, err := store.Load()
	require.NoError(t, err)

	defaults := 0
	for _, conn := range list {
		if conn.IsDefault {
			defaults++
			// First in name order wins when several are flagged.
			assert.Equal(t, "attic", conn.Name)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestStoreNoDefaultFlagsAlphabeticallyFirst(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Save([]models.ConnectionDescriptor{
		testConn("zulu"), testConn("Alpha"), testConn("mike"),
	}))

	def, err := store.Default()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", def.Name)
}

func TestStoreRemove(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Add(testConn("attic")))
	require.NoError(t, store.Add(testConn("bench")))
	require.NoError(t, store.Remove("attic"))

	list, err := store.Load()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bench", list[0].Name)
	assert.True(t, list[0].IsDefault, "default must migrate when its connection is removed")

	err = store.Remove("attic")
	assert.Error(t, err)
}

func TestStoreSetDefaultUnknownName(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Add(testConn("bench")))

	err := store.SetDefault("ghost")
	assert.Error(t, err)
}

func TestStoreGetDefaultAliases(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Add(testConn("bench")))

	for _, name := range []string{"", "default", "DEFAULT"} {
		got, err := store.Get(name)
		require.NoError(t, err)
		assert.Equal(t, "bench", got.Name)
	}
}

func TestStoreUpdatePersistsKeyPaths(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Add(testConn("bench")))

	conn, err := store.Get("bench")
	require.NoError(t, err)
	conn.PrivateKeyPath = "/tmp/keys/pi@bench.local-22"
	conn.PublicKeyPath = "/tmp/keys/pi@bench.local-22.pub"
	require.NoError(t, store.Update(*conn))

	got, err := store.Get("bench")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/keys/pi@bench.local-22", got.PrivateKeyPath)
	assert.True(t, got.IsDefault)
}

func TestStoreFilePermissions(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Add(testConn("bench")))

	info, err := os.Stat(store.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestKeystoreWriteKeyPair(t *testing.T) {
	ks := NewKeystore(filepath.Join(t.TempDir(), "keys"))

	priv, pub, err := ks.WriteKeyPair("pi@bench.local-22",
		[]byte("private material"), []byte("ssh-rsa AAAA tester"))
	require.NoError(t, err)

	assert.Equal(t, ks.PrivateKeyPath("pi@bench.local-22"), priv)
	assert.Equal(t, ks.PublicKeyPath("pi@bench.local-22"), pub)

	info, err := os.Stat(priv)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	info, err = os.Stat(pub)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	data, err := os.ReadFile(pub)
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa AAAA tester", string(data))
}
