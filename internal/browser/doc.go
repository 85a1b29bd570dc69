// Package browser provides the page-rendering sessions used to read the
// Ecobee status page.
//
// A [Session] is a narrow view of a controllable browser: navigate to a URL,
// return the rendered text of the current page, and close. Two
// implementations are provided:
//
//   - [ChromeSession]: a headless (or visible) Chrome driven by chromedp
//   - [HTTPSession]: a plain HTTP fetch for hosts without Chrome, which
//     sees the server-rendered HTML only. Tags are stripped and whitespace
//     collapsed to approximate what Chrome reports as the page's inner
//     text; content injected by scripts is never seen
//
// Sessions are not safe for concurrent use.
package browser
