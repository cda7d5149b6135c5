// Package cssbuild publishes the site stylesheet under a versioned,
// cache-busting file name.
//
// A production publish builds the bundle to a temporary file and compares it
// with the currently linked src/output-vNNN.css. Identical output changes
// nothing. Different output bumps the counter in .css-version, moves the
// bundle into place, removes older bundles and relinks every HTML page. Dev
// mode writes src/output-dev.css and only relinks.
package cssbuild
