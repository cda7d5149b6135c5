// Package workspace manages scratch directories for the build-branch
// publisher, supporting both ephemeral and persistent modes.
//
// Ephemeral mode creates a uniquely named directory (for example
// sitebuilder-deploy-20251214-122336-123456) that is removed on Cleanup.
//
// Persistent mode uses a fixed directory (for example .sitebuilder/deploy)
// that survives across runs so the build branch clone can be fetched
// incrementally.
package workspace
