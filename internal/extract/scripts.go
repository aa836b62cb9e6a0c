package extract

// The three scripts below are evaluated inside a worker's tab via
// browser.Tab.Eval; they run with no access to the host process and
// return a JSON-serializable value that Eval decodes into the matching
// Go struct in types.go. Their shape (expand, scroll, harvest) is
// grounded on the DOM-extraction idiom used against real rod.Page.Eval
// calls across the retrieval pack (e.g. the scroll-then-scrollTo loop
// and document.querySelectorAll('a[href]') harvest pattern common to
// browser-driven crawlers in the pack), generalized here to canvas's
// expand-collapse controls and PDF.js text layers.

// pageExtractorScript implements §4.3's page extractor: expand-all,
// scroll-to-bottom, then harvest text (preferring PDF.js text layers)
// and links.
const pageExtractorScript = `(maxTextChars) => {
	function sleep(ms) { return new Promise(r => setTimeout(r, ms)); }

	async function expandAll() {
		const selectors = [
			'#expand_collapse_all',
			'button[aria-expanded="false"]',
			'button[class*="expand"]',
			'.expand-collapse-all',
		];
		for (let i = 0; i < 12; i++) {
			let clicked = false;
			for (const sel of selectors) {
				document.querySelectorAll(sel).forEach(el => {
					const expanded = el.getAttribute('aria-expanded');
					if (expanded === 'false' || expanded === null) {
						el.click();
						clicked = true;
					}
				});
			}
			document.querySelectorAll('details').forEach(d => {
				if (!d.open) { d.open = true; clicked = true; }
			});
			const master = document.querySelector('#expand_collapse_all');
			if (master && master.getAttribute('aria-expanded') === 'false') {
				master.click();
				clicked = true;
			}
			if (!clicked) break;
			await sleep(150);
		}
	}

	function scrollableContainers() {
		const all = Array.from(document.querySelectorAll('*'));
		return all.filter(el => el.scrollHeight > el.clientHeight + 40 && el.clientHeight > 80);
	}

	async function scrollToBottom(el) {
		let lastHeight = -1;
		for (let i = 0; i < 20; i++) {
			const h = el === document.documentElement ? document.body.scrollHeight : el.scrollHeight;
			if (h === lastHeight) break;
			lastHeight = h;
			const step = (el.clientHeight || window.innerHeight) * 0.8;
			if (el === document.documentElement) window.scrollBy(0, step);
			else el.scrollTop += step;
			await sleep(300);
		}
		if (el === document.documentElement) window.scrollTo(0, 0);
		else el.scrollTop = 0;
	}

	async function scrollAll() {
		await scrollToBottom(document.documentElement);
		for (const el of scrollableContainers()) {
			await scrollToBottom(el);
		}
	}

	function harvestText() {
		const layers = document.querySelectorAll('.TextLayer-container .textLayer');
		if (layers.length > 0) {
			let text = '';
			layers.forEach(l => { text += l.innerText + '\n'; });
			return text;
		}
		return document.body.innerText || '';
	}

	function normalizeWhitespace(s) {
		return s.replace(/[ \t]+/g, ' ').replace(/\n{3,}/g, '\n\n').trim();
	}

	function harvestLinks() {
		const seen = new Set();
		const links = [];
		document.querySelectorAll('a[href]').forEach(a => {
			const href = a.href;
			if (!href || seen.has(href)) return;
			seen.add(href);
			const lower = href.toLowerCase();
			const isFile = lower.includes('/files/') || lower.includes('/download');
			links.push({ url: href, anchorText: (a.textContent || '').trim().slice(0, 200), isFile });
		});
		return links;
	}

	return (async () => {
		await expandAll();
		await scrollAll();
		let text = normalizeWhitespace(harvestText());
		if (text.length > maxTextChars) text = text.slice(0, maxTextChars);
		return {
			text,
			title: document.title || '',
			url: window.location.href,
			links: harvestLinks(),
		};
	})();
}`

// fileViewerExtractorScript implements §4.3's file-viewer extractor:
// scroll every candidate viewer container (including same-origin
// iframes) to its bottom, then take a script/style-stripped innerText.
const fileViewerExtractorScript = `(maxTextChars) => {
	function sleep(ms) { return new Promise(r => setTimeout(r, ms)); }

	async function scrollContainer(el) {
		let lastHeight = -1;
		for (let i = 0; i < 20; i++) {
			const h = el.scrollHeight;
			if (h === lastHeight) break;
			lastHeight = h;
			el.scrollTop = h;
			await sleep(300);
		}
	}

	async function scrollViewers() {
		const containers = document.querySelectorAll('.textLayer, .pdfViewer, .Pages');
		for (const el of containers) await scrollContainer(el);

		const iframes = document.querySelectorAll('iframe');
		for (const frame of iframes) {
			try {
				const doc = frame.contentDocument;
				if (!doc) continue;
				await scrollContainer(doc.documentElement);
			} catch (e) {
				// cross-origin iframe: nothing we can harvest from it.
			}
		}
	}

	function harvestText() {
		const clone = document.body.cloneNode(true);
		clone.querySelectorAll('script, style, noscript, nav, header, footer').forEach(el => el.remove());
		const holder = document.createElement('div');
		holder.style.display = 'none';
		holder.appendChild(clone);
		document.body.appendChild(holder);
		const text = holder.innerText;
		holder.remove();
		return text;
	}

	function deriveFilename() {
		const heading = document.querySelector('h1, h2');
		if (heading && heading.textContent.trim()) return heading.textContent.trim();
		const parts = window.location.pathname.split('/').filter(Boolean);
		return parts.length > 0 ? parts[parts.length - 1] : 'file';
	}

	return (async () => {
		await scrollViewers();
		let text = harvestText();
		if (text.length > maxTextChars) text = text.slice(0, maxTextChars);
		return { text, filename: deriveFilename() };
	})();
}`

// modulePrefetchScript implements §4.3's module-prefetch extractor: on
// the course's /modules view, expand every collapsible section and
// return the deduplicated set of hrefs that look like files.
const modulePrefetchScript = `() => {
	function sleep(ms) { return new Promise(r => setTimeout(r, ms)); }

	async function expandAll() {
		for (let i = 0; i < 12; i++) {
			let clicked = false;
			document.querySelectorAll('button[aria-expanded="false"], .expand-collapse-all, button[class*="expand"]').forEach(el => {
				el.click();
				clicked = true;
			});
			document.querySelectorAll('details').forEach(d => {
				if (!d.open) { d.open = true; clicked = true; }
			});
			if (!clicked) break;
			await sleep(150);
		}
	}

	function fileHrefs() {
		const seen = new Set();
		const urls = [];
		document.querySelectorAll('a[href]').forEach(a => {
			const href = a.href;
			if (!href || seen.has(href)) return;
			const lower = href.toLowerCase();
			const looksLikeFile = lower.includes('/files/') ||
				/\.(pdf|doc|docx|ppt|pptx|xls|xlsx|csv|txt|md|rtf)(\?|$)/.test(lower);
			if (looksLikeFile) {
				seen.add(href);
				urls.push(href);
			}
		});
		return urls;
	}

	return (async () => {
		await expandAll();
		return { fileUrls: fileHrefs() };
	})();
}`
