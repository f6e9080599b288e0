package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/xapet-0/openclaw/internal/human"
)

// Visibility means the element exists, its computed display and
// visibility are not hidden, and it has a layout box (offsetParent).
const jsVisibleHelper = `
	function __clawVisible(el) {
		if (!el) return false;
		var cs = window.getComputedStyle(el);
		if (cs.display === 'none' || cs.visibility === 'hidden') return false;
		return el.offsetParent !== null;
	}`

// Every probe tolerates rules the page's engine rejects: a selector
// that throws is skipped, never fatal.
const (
	jsFirstVisible = `(function(rules) {` + jsVisibleHelper + `
		for (var i = 0; i < rules.length; i++) {
			var el;
			try { el = document.querySelector(rules[i]); } catch (e) { continue; }
			if (__clawVisible(el)) return rules[i];
		}
		return "";
	})(%s)`

	jsMatchCount = `(function(rules) {
		var seen = new Set();
		for (var i = 0; i < rules.length; i++) {
			var els;
			try { els = document.querySelectorAll(rules[i]); } catch (e) { continue; }
			for (var j = 0; j < els.length; j++) seen.add(els[j]);
		}
		return seen.size;
	})(%s)`

	jsAnyVisible = `(function(rules) {` + jsVisibleHelper + `
		for (var i = 0; i < rules.length; i++) {
			var els;
			try { els = document.querySelectorAll(rules[i]); } catch (e) { continue; }
			for (var j = 0; j < els.length; j++) {
				if (__clawVisible(els[j])) return true;
			}
		}
		return false;
	})(%s)`

	jsAnyPresent = `(function(rules) {
		for (var i = 0; i < rules.length; i++) {
			try { if (document.querySelector(rules[i])) return true; } catch (e) { continue; }
		}
		return false;
	})(%s)`

	jsRuleTexts = `(function(rule) {
		var els;
		try { els = document.querySelectorAll(rule); } catch (e) { return []; }
		var out = [];
		for (var i = 0; i < els.length; i++) {
			out.push(els[i].innerText || els[i].textContent || "");
		}
		return out;
	})(%s)`

	jsControlKind = `(function(sel) {
		var el;
		try { el = document.querySelector(sel); } catch (e) { return ""; }
		if (!el) return "";
		var tag = el.tagName.toLowerCase();
		if (tag === 'textarea' || tag === 'input') return "field";
		if (el.isContentEditable) return "editable";
		return "";
	})(%s)`

	// Plain fields are set through the prototype value setter so
	// framework-controlled inputs observe the change, then input and
	// change events fire as they would for real typing.
	jsSetValue = `(function(sel, text) {
		var el;
		try { el = document.querySelector(sel); } catch (e) { return false; }
		if (!el) return false;
		el.focus();
		var proto = el.tagName === 'TEXTAREA' ? window.HTMLTextAreaElement.prototype : window.HTMLInputElement.prototype;
		var desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) { desc.set.call(el, text); } else { el.value = text; }
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})(%s, %s)`

	jsSelectContent = `(function(sel) {
		var el;
		try { el = document.querySelector(sel); } catch (e) { return false; }
		if (!el) return false;
		el.focus();
		var range = document.createRange();
		range.selectNodeContents(el);
		var selection = window.getSelection();
		selection.removeAllRanges();
		selection.addRange(range);
		return true;
	})(%s)`
)

// jsArg renders v as a JSON literal safe to splice into a script.
func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (p *cdpPage) eval(ctx context.Context, js string, out any) error {
	return p.run(ctx, chromedp.Evaluate(js, out))
}

func (p *cdpPage) HasFocus(ctx context.Context) (bool, error) {
	var focused bool
	err := p.eval(ctx, `document.hasFocus()`, &focused)
	return focused, err
}

func (p *cdpPage) MatchCount(ctx context.Context, rules []string) (int, error) {
	var n int
	err := p.eval(ctx, fmt.Sprintf(jsMatchCount, jsArg(rules)), &n)
	return n, err
}

func (p *cdpPage) AnyVisible(ctx context.Context, rules []string) (bool, error) {
	var found bool
	err := p.eval(ctx, fmt.Sprintf(jsAnyVisible, jsArg(rules)), &found)
	return found, err
}

func (p *cdpPage) AnyPresent(ctx context.Context, rules []string) (bool, error) {
	var found bool
	err := p.eval(ctx, fmt.Sprintf(jsAnyPresent, jsArg(rules)), &found)
	return found, err
}

func (p *cdpPage) FirstVisible(ctx context.Context, rules []string) (string, error) {
	var rule string
	err := p.eval(ctx, fmt.Sprintf(jsFirstVisible, jsArg(rules)), &rule)
	return rule, err
}

func (p *cdpPage) ControlKind(ctx context.Context, selector string) (string, error) {
	var kind string
	err := p.eval(ctx, fmt.Sprintf(jsControlKind, jsArg(selector)), &kind)
	return kind, err
}

func (p *cdpPage) SetText(ctx context.Context, selector, text string) error {
	var ok bool
	err := p.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(jsSetValue, jsArg(selector), jsArg(text)), &ok),
	)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("set text: no element for %q", selector)
	}
	return nil
}

// TypeText clicks the region, selects whatever draft is already there,
// deletes it, and types the prompt key by key. Editor frameworks that
// ignore programmatic value writes accept trusted key events.
func (p *cdpPage) TypeText(ctx context.Context, selector, text string) error {
	var selected bool
	actions := []chromedp.Action{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(jsSelectContent, jsArg(selector)), &selected),
		chromedp.KeyEvent(kb.Backspace),
	}
	actions = append(actions, human.Type(text, p.typeDelay)...)
	return p.run(ctx, actions...)
}

func (p *cdpPage) Submit(ctx context.Context) error {
	return p.run(ctx, human.Submit())
}

func (p *cdpPage) RuleTexts(ctx context.Context, rule string) ([]string, error) {
	var texts []string
	err := p.eval(ctx, fmt.Sprintf(jsRuleTexts, jsArg(rule)), &texts)
	return texts, err
}
