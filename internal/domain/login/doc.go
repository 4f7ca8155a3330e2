/*
Package login injects platform credentials into unknown login forms.

A Chain runs Strategy values in a fixed order and stops at the first one
that reports Succeeded or Navigated:

 1. direct: a short list of common field selectors, then submit by a login
    button, generic submit controls, form.submit() or Enter
 2. enhanced: an extended selector set, led by selectors the goquery form
    analyser derives from the page markup; submit by control, label or Enter
 3. frames: the same patterns inside each iframe document
 4. script: values set through the DOM with input/change events

A navigation observed during the chain (URL change or a destroyed
execution context) counts as success. The resulting signal is a guess
that the platform accepted the credentials, never a verified check.

Selector lists can be extended from a YAML file:

	direct:
	  username: ["#corp-login"]
	enhanced:
	  submit: ["button.sso-continue"]
	submitTexts: ["continue"]
*/
package login
