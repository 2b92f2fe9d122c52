package cmd

import (
	"context"

	"github.com/pidev-project/pidev/pkg/connections"
	"github.com/pidev-project/pidev/pkg/provision"
)

// connectSession wires the caller-owned registries (store, keystore,
// catalog) into a provisioning session for the named connection.
func connectSession(
	ctx context.Context,
	name string,
	forcePassword bool,
) (*provision.Session, *connections.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	desc, err := store.Get(name)
	if err != nil {
		return nil, nil, err
	}

	keystore, err := openKeystore()
	if err != nil {
		return nil, nil, err
	}
	cat, err := loadCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	sess, err := provision.Connect(ctx, *desc, provision.Options{
		Catalog:       cat,
		Keystore:      keystore,
		ForcePassword: forcePassword,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, store, nil
}

// persistDescriptor writes back descriptor changes made during connect
// (key provisioning rewrites the key paths).
func persistDescriptor(sess *provision.Session, store *connections.Store) error {
	if !sess.DescriptorUpdated() {
		return nil
	}
	desc := sess.Descriptor()
	return store.Update(desc)
}
