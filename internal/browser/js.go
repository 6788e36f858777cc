// internal/browser/js.go
package browser

// Shared in-page helpers. Every script that addresses an element by ref
// prepends jsFindRef so lookups pierce open shadow roots the same way the
// scan does.
const jsFindRef = `
const findRef = (ref) => {
	const sel = '[data-vox-ref="' + ref.replace(/"/g, '\\"') + '"]';
	const walk = (root) => {
		const el = root.querySelector(sel);
		if (el) return el;
		for (const host of root.querySelectorAll('*')) {
			if (host.shadowRoot) {
				const found = walk(host.shadowRoot);
				if (found) return found;
			}
		}
		return null;
	};
	return walk(document);
};
`

// jsScan walks the document and every attached open shadow root, tags each
// interactive element with a fresh data-vox-ref token, and returns the raw
// per-element records. No filtering happens here; the extractor owns
// classification and visibility.
const jsScan = `(() => {
	const SELECTOR = 'a[href], a[role], button, input, select, textarea, [contenteditable=""], [contenteditable="true"], [role]';
	let seq = 0;
	const out = [];
	const textOf = (el) => (el.innerText || el.textContent || '').trim().slice(0, 300);
	const rootOf = (el) => {
		const r = el.getRootNode();
		return r.querySelector ? r : document;
	};
	const labelledBy = (el) => {
		const ids = (el.getAttribute('aria-labelledby') || '').split(/\s+/).filter(Boolean);
		const root = rootOf(el);
		return ids
			.map((id) => {
				const n = root.querySelector('[id="' + id.replace(/"/g, '\\"') + '"]');
				return n ? textOf(n) : '';
			})
			.filter(Boolean)
			.join(' ');
	};
	const labelFor = (el) => {
		if (!el.id) return '';
		const l = rootOf(el).querySelector('label[for="' + el.id.replace(/"/g, '\\"') + '"]');
		return l ? textOf(l) : '';
	};
	const visit = (root) => {
		for (const el of root.querySelectorAll(SELECTOR)) {
			let ref = el.getAttribute('data-vox-ref');
			if (!ref) {
				ref = 'vox-' + Date.now().toString(36) + '-' + seq++;
				el.setAttribute('data-vox-ref', ref);
			}
			const cs = getComputedStyle(el);
			const rect = el.getBoundingClientRect();
			const attrs = {};
			for (const a of el.attributes) {
				if (a.name !== 'data-vox-ref') attrs[a.name] = a.value;
			}
			const wrap = el.closest('label');
			out.push({
				ref: ref,
				tag: el.tagName.toLowerCase(),
				inputType: el.tagName === 'INPUT' ? (el.type || 'text') : '',
				attrs: attrs,
				text: textOf(el),
				labelFor: labelFor(el),
				wrapLabel: wrap && wrap !== el ? textOf(wrap) : '',
				ariaLabelledBy: labelledBy(el),
				editable: el.isContentEditable === true,
				width: rect.width,
				height: rect.height,
				display: cs.display,
				visibility: cs.visibility,
				opacity: parseFloat(cs.opacity)
			});
		}
		for (const host of root.querySelectorAll('*')) {
			if (host.shadowRoot) visit(host.shadowRoot);
		}
	};
	visit(document);
	return out;
})()`

// jsResolveQuery finds live elements for one query object {ref, selector,
// textContains}. Matches get a data-vox-ref assigned if they lack one so the
// returned candidates are immediately actionable.
const jsResolveQuery = jsFindRef + `
((q) => {
	let seq = 0;
	const textOf = (el) => (el.innerText || el.textContent || '').trim().slice(0, 300);
	const describe = (el) => {
		let ref = el.getAttribute('data-vox-ref');
		if (!ref) {
			ref = 'vox-q-' + Date.now().toString(36) + '-' + seq++;
			el.setAttribute('data-vox-ref', ref);
		}
		return {
			ref: ref,
			tagName: el.tagName.toLowerCase(),
			text: textOf(el),
			ariaLabel: el.getAttribute('aria-label') || '',
			name: el.getAttribute('name') || '',
			placeholder: el.getAttribute('placeholder') || '',
			value: el.value !== undefined ? String(el.value) : ''
		};
	};
	if (q.ref) {
		const el = findRef(q.ref);
		return el ? [describe(el)] : [];
	}
	const matches = [];
	const visit = (root) => {
		let found;
		try {
			found = root.querySelectorAll(q.selector || '*');
		} catch (e) {
			return;
		}
		for (const el of found) matches.push(el);
		for (const host of root.querySelectorAll('*')) {
			if (host.shadowRoot) visit(host.shadowRoot);
		}
	};
	visit(document);
	const needle = (q.textContains || '').toLowerCase();
	return matches
		.filter((el) => !needle || textOf(el).toLowerCase().includes(needle))
		.map(describe);
})(%s)`

// jsClick scrolls the target into view and dispatches the full pointer and
// mouse sequence. Form members additionally get change and blur so frameworks
// listening on either see the interaction.
const jsClick = jsFindRef + `
((ref) => {
	const el = findRef(ref);
	if (!el) return { ok: false, error: 'no element for ref ' + ref };
	el.scrollIntoView({ block: 'center', inline: 'center' });
	const opts = { bubbles: true, cancelable: true, composed: true };
	el.dispatchEvent(new PointerEvent('pointerdown', opts));
	el.dispatchEvent(new MouseEvent('mousedown', opts));
	el.dispatchEvent(new PointerEvent('pointerup', opts));
	el.dispatchEvent(new MouseEvent('mouseup', opts));
	el.click();
	if (/^(INPUT|SELECT|TEXTAREA)$/.test(el.tagName)) {
		el.dispatchEvent(new Event('change', { bubbles: true }));
		el.blur();
	}
	return { ok: true };
})(%s)`

// jsType focuses the target, replaces its value, and dispatches the key and
// input event set frameworks expect. Contenteditable hosts take the text as
// content.
const jsType = jsFindRef + `
((ref, value) => {
	const el = findRef(ref);
	if (!el) return { ok: false, error: 'no element for ref ' + ref };
	el.focus();
	if (el.isContentEditable) {
		el.textContent = value;
	} else if ('value' in el) {
		el.value = value;
	} else {
		return { ok: false, error: el.tagName.toLowerCase() + ' has no usable value property' };
	}
	const opts = { bubbles: true, cancelable: true };
	el.dispatchEvent(new KeyboardEvent('keydown', opts));
	el.dispatchEvent(new KeyboardEvent('keypress', opts));
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new KeyboardEvent('keyup', opts));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return { ok: true };
})(%s, %s)`

const jsSetSelect = jsFindRef + `
((ref, index) => {
	const el = findRef(ref);
	if (!el) return { ok: false, error: 'no element for ref ' + ref };
	if (el.tagName !== 'SELECT') {
		return { ok: false, error: 'target is ' + el.tagName.toLowerCase() + ', not select' };
	}
	if (index < 0 || index >= el.options.length) {
		return { ok: false, error: 'option index ' + index + ' out of range' };
	}
	el.selectedIndex = index;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return { ok: true };
})(%s, %d)`

const jsClear = jsFindRef + `
((ref) => {
	const el = findRef(ref);
	if (!el) return { ok: false, error: 'no element for ref ' + ref };
	el.focus();
	if (el.isContentEditable) {
		el.textContent = '';
	} else if ('value' in el) {
		el.value = '';
	} else {
		return { ok: false, error: el.tagName.toLowerCase() + ' has no usable value property' };
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return { ok: true };
})(%s)`

// jsObserveState samples the side-effect surface used for visible-change
// verification. The active element reports its ref token when it has one so
// focus moves are comparable across observations.
const jsObserveState = `(() => {
	const active = document.activeElement;
	return {
		url: location.href,
		documentLength: document.documentElement.outerHTML.length,
		activeElement: active
			? (active.getAttribute('data-vox-ref') || active.tagName.toLowerCase())
			: '',
		scrollX: window.scrollX,
		scrollY: window.scrollY,
		dialogCount: document.querySelectorAll('dialog[open]').length,
		modalCount: document.querySelectorAll('[role="dialog"], [role="alertdialog"], [aria-modal="true"]').length
	};
})()`

// jsInstallMutationWatch is idempotent; reinstalling after navigation is the
// caller's job since page loads wipe window state.
const jsInstallMutationWatch = `(() => {
	if (window.__voxMutationWatch) return true;
	window.__voxMutated = false;
	const obs = new MutationObserver(() => { window.__voxMutated = true; });
	obs.observe(document.documentElement, {
		childList: true,
		subtree: true,
		attributes: true,
		attributeFilter: ['disabled', 'hidden', 'style', 'class', 'value', 'open', 'aria-hidden']
	});
	window.__voxMutationWatch = obs;
	return true;
})()`

const jsConsumeMutationFlag = `(() => {
	if (!window.__voxMutationWatch) return true;
	const mutated = !!window.__voxMutated;
	window.__voxMutated = false;
	return mutated;
})()`
