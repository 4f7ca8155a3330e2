package browser

import (
	"context"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// aliases for key names browsers report differently from kb
var keyAliases = map[string]string{
	"Space":    " ",
	"Spacebar": " ",
	"Esc":      kb.Escape,
	"Up":       kb.ArrowUp,
	"Down":     kb.ArrowDown,
	"Left":     kb.ArrowLeft,
	"Right":    kb.ArrowRight,
	"Del":      kb.Delete,
	"OS":       kb.Meta,
}

// DOM key name to kb rune for every non-character key kb knows. When kb
// lists a key twice (left/right modifiers, numpad) the lowest rune wins.
var namedKeys = func() map[string]rune {
	m := make(map[string]rune)
	for r, k := range kb.Keys {
		if utf8.RuneCountInString(k.Key) < 2 {
			continue
		}
		if prev, ok := m[k.Key]; ok && prev < r {
			continue
		}
		m[k.Key] = r
	}
	return m
}()

// KeyValue maps a DOM key name to the value chromedp dispatches. Single
// characters pass through unchanged. Unknown names return "".
func KeyValue(key string) string {
	if v, ok := keyAliases[key]; ok {
		return v
	}
	if utf8.RuneCountInString(key) == 1 {
		return key
	}
	if r, ok := namedKeys[key]; ok {
		return string(r)
	}
	return ""
}

// keyEvents encodes one press of key. Names kb does not know become a bare
// keyDown/keyUp pair carrying only the key name, so they never insert text.
func keyEvents(key string) []*input.DispatchKeyEventParams {
	if v := KeyValue(key); v != "" {
		r, _ := utf8.DecodeRuneInString(v)
		return kb.Encode(r)
	}
	if key == "" {
		return nil
	}
	down := input.DispatchKeyEventParams{Type: input.KeyDown, Key: key}
	up := down
	up.Type = input.KeyUp
	return []*input.DispatchKeyEventParams{&down, &up}
}

func pressKey(key string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ev := range keyEvents(key) {
			if err := ev.Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
