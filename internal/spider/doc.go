// Package spider implements the A&E statistics crawl: a two-level traversal from
// the publisher's index page to monthly and weekly sub-pages, classification of
// anchors by their visible text, content-addressed download of every discovered
// spreadsheet, and the per-run manifest.
package spider
