package svk

import (
	"encoding/json"
	"fmt"
)

const (
	tableSelector = "table.table--striped"

	acceptCookiesScript = `
		(function() {
			var btn = document.querySelector('.cookie-accept-all');
			if (!btn) return false;
			btn.click();
			return true;
		})()
	`

	// Returns "clicked", "already" or "missing".
	tableViewScript = `
		(function() {
			var buttons = document.querySelectorAll('button');
			var found = false;
			for (var i = 0; i < buttons.length; i++) {
				if ((buttons[i].textContent || '').indexOf('Tabell') === -1) continue;
				found = true;
				if (buttons[i].getAttribute('aria-selected') === 'false') {
					buttons[i].scrollIntoView(true);
					buttons[i].click();
					return 'clicked';
				}
			}
			return found ? 'already' : 'missing';
		})()
	`

	readDateScript = `
		(function() {
			var ids = ['Agsid-15', 'Agsid-8', 'Agsid-1'];
			for (var i = 0; i < ids.length; i++) {
				var el = document.getElementById(ids[i]);
				if (el && el.value) return el.value;
			}
			var inputs = document.querySelectorAll("input[type='text'][readonly]");
			for (var j = 0; j < inputs.length; j++) {
				var v = inputs[j].value || '';
				if (v.indexOf('-') !== -1) return v;
			}
			return '';
		})()
	`

	readTableScript = `
		(function() {
			var out = {headers: [], rows: []};
			var table = document.querySelector('table.table--striped');
			if (!table) return out;
			var rows = table.querySelectorAll('tr');
			if (rows.length === 0) return out;
			var ths = rows[0].querySelectorAll('th');
			for (var i = 0; i < ths.length; i++) {
				out.headers.push((ths[i].textContent || '').trim());
			}
			for (var r = 1; r < rows.length; r++) {
				var tds = rows[r].querySelectorAll('td');
				if (tds.length === 0) continue;
				var cells = [];
				for (var c = 0; c < tds.length; c++) {
					cells.push(tds[c].textContent || '');
				}
				out.rows.push(cells);
			}
			return out;
		})()
	`

	confirmDateScript = `
		(function() {
			var buttons = document.querySelectorAll('button');
			for (var i = 0; i < buttons.length; i++) {
				if ((buttons[i].textContent || '').trim().indexOf('Välj') !== -1) {
					buttons[i].click();
					return true;
				}
			}
			var alt = document.querySelector("button[data-action='setNewDate']");
			if (alt) { alt.click(); return true; }
			return false;
		})()
	`
)

var (
	previousDaySelectors = []string{
		".graphPowerConsumption .date-time-picker button.button-left",
		".date-time-picker button.button-left",
		"button[aria-label*='föregående dag']",
	}

	openCalendarSelectors = []string{
		".date-time-picker .bi-calendar2-date",
		".date-time-picker input[readonly]",
	}
)

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// areaTabScript clicks the first area tab whose text contains label.
func areaTabScript(label string) string {
	return fmt.Sprintf(`
		(function() {
			var label = %s;
			var tabs = document.querySelectorAll('button.custom-trigger');
			for (var i = 0; i < tabs.length; i++) {
				if ((tabs[i].textContent || '').indexOf(label) !== -1) {
					tabs[i].scrollIntoView(true);
					tabs[i].click();
					return true;
				}
			}
			return false;
		})()
	`, jsString(label))
}

// clickFirstScript clicks the first enabled element matching any of the
// selectors, in order, and reports whether it clicked anything.
func clickFirstScript(selectors ...string) string {
	list, _ := json.Marshal(selectors)
	return fmt.Sprintf(`
		(function() {
			var selectors = %s;
			for (var i = 0; i < selectors.length; i++) {
				var els = document.querySelectorAll(selectors[i]);
				for (var j = 0; j < els.length; j++) {
					var el = els[j];
					if (el.disabled || el.getAttribute('disabled') !== null) continue;
					el.scrollIntoView(true);
					el.click();
					return true;
				}
			}
			return false;
		})()
	`, string(list))
}

// textScript returns the trimmed text content of the first match of selector.
func textScript(selector string) string {
	return fmt.Sprintf(`
		(function() {
			var el = document.querySelector(%s);
			return el ? (el.textContent || '').trim() : '';
		})()
	`, jsString(selector))
}
