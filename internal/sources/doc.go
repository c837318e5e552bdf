// Package sources holds one client per external feed: Hacker News (Firebase
// item API plus Algolia search), subreddit Atom feeds, long-form outlet feeds
// and YouTube channel feeds. Clients never return errors across their
// boundary; failures come back as fetcher.Result values or empty results.
package sources
