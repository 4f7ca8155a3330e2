/*
Package stream runs remote platform sessions for operators.

An Engine handles three requests per user:

  - StartSession: launch a browser, load the platform, optionally run the
    login chain, then start pushing frames
  - Interact: replay a click, typed text, key press or scroll on the page
  - StopSession: close the browser and stop the frames

Progress is pushed through an Emitter as login-status, screenshot,
page-error and page-dialog events addressed to the user. Each request
also returns a Reply for the connection that made it.

The capture loop of a session is bound to the session context, so closing
or replacing a session stops its frames without further bookkeeping.
*/
package stream
