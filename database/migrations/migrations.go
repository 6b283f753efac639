// Package migrations registers the storefront schema with pkg/migration.
// Importing it for side effects makes every migration available to the
// migrate commands.
package migrations
