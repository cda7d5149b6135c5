// Package build runs the posts pipeline and wraps every sitebuilder pipeline
// with build IDs, journal events, metrics and notifications.
//
// PostsService is the staged pipeline behind `sitebuilder posts` and the watch
// daemon: sync markdown, load and validate posts, render pages, remove stale
// pages, write posts.json and inject the timeline and latest-posts blocks.
// Runner is shared by all pipelines (posts, css, bookmarks, icons, static,
// deploy) so they report through one path.
package build
