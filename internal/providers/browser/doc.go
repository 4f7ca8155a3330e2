/*
Package browser drives headless Chrome for proxied platform sessions.

# Overview

A Launcher starts one isolated Chrome process per session through
chromedp, sized to a fixed 1280x720 viewport with a static desktop user
agent. The returned Page is the only handle the rest of the service holds:
navigation, element queries, screenshots and synthetic input all go
through it, which keeps chromedp out of the domain packages and lets
tests substitute browsertest.Page.

# Page events

Before the first navigation the launcher attaches a listener to the tab:

  - uncaught exceptions become EventPageError
  - JavaScript dialogs become EventDialog and are accepted immediately
  - console output is logged at debug level only

# Navigation errors

Operations racing a navigation fail with protocol errors such as
"Execution context was destroyed". IsNavigationError recognises them so
callers can treat them as "the page moved on" rather than as failures.
*/
package browser
