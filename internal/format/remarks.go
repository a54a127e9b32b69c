package format

import (
	"encoding/json"
	"strings"

	"trainics/internal/hafas"
	appLog "trainics/internal/log"
)

const GlyphUnknownRemark = "⚠️"

// remarkRule maps remarks satisfying match to glyph.
type remarkRule struct {
	name  string
	match func(r hafas.Remark) bool
	glyph string
}

// remarkRules are evaluated top to bottom; the first match wins.
var remarkRules = []remarkRule{
	{"dining", codeIn("on-board-restaurant", "on-board-bistro", "KG", "BW", "MN"), "🍴"},
	{"no-smoking", codeIn("55"), "🚭"},
	{"mask", anyOf(textContainsFold("mask"), codeIn("3G")), "🤿"},
	{"priority-boarding", codeIn("komfort-checkin"), "🧸"},
	{"wifi", codeIn("wifi"), "📡"},
	{"power-sockets", codeIn("power-sockets"), "🔌"},
	{"group-travel", codeIn("GL"), "👥"},
	{"sleeper", codeIn("SL"), "🛏️"},
	{"high-speed", codeIn("ice-sprinter"), "⚡"},
	{"journey-cancelled", codeIn("journey-cancelled"), "⛔"},
	{"snacks", codeIn("snacks"), "🥨"},
	{"family-compartment", codeIn("parents-childrens-compartment"), "👪"},
	{"infant-care", codeIn("SA"), "🍼"},
	{"accessibility", anyOf(codeIn("boarding-ramp", "EA", "EI", "ER"), codeContainsFold("wheelchairs", "barrier")), "♿"},
	{"bicycle", codeContainsFold("bicycle"), "🚲"},
	{"restroom", textContains("WC", "toilette", "restroom"), "🚾"},
	{"construction", textContains("Baustelle", "Baumaßnahmen", "construction"), "🚧"},
	{"illness", textContainsFold("krank"), "🤒"},
	{"hint", typeIs(hafas.RemarkHint), "ℹ️"},
	{"warning", typeIs(hafas.RemarkWarning), "⚠️"},
	{"status", typeIs(hafas.RemarkStatus), "📜"},
}

// RemarkGlyph classifies a remark. Unrecognized remarks are logged and get
// the generic warning glyph.
func RemarkGlyph(r hafas.Remark) string {
	for _, rule := range remarkRules {
		if rule.match(r) {
			return rule.glyph
		}
	}

	raw, err := json.Marshal(r)
	if err != nil {
		raw = []byte(r.Code + " " + r.Text)
	}
	appLog.Warn("unknown remark", "remark", string(raw))
	return GlyphUnknownRemark
}

// RemarksSection renders "\n\nHinweise:\n" followed by one "<glyph> <text>"
// line per remark, or "" when there are no remarks.
func RemarksSection(remarks []hafas.Remark) string {
	if len(remarks) == 0 {
		return ""
	}

	lines := make([]string, 0, len(remarks))
	for _, r := range remarks {
		text := r.Text
		if text == "" {
			text = r.Summary
		}
		lines = append(lines, RemarkGlyph(r)+" "+text)
	}
	return "\n\nHinweise:\n" + strings.Join(lines, "\n")
}

func codeIn(codes ...string) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		for _, c := range codes {
			if r.Code == c {
				return true
			}
		}
		return false
	}
}

func codeContainsFold(subs ...string) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		return containsAny(strings.ToLower(r.Code), subs...)
	}
}

func textContains(subs ...string) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		return containsAny(r.Text, subs...)
	}
}

func textContainsFold(subs ...string) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		return containsAny(strings.ToLower(r.Text), subs...)
	}
}

func typeIs(t hafas.RemarkType) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		return r.Type == t
	}
}

func anyOf(preds ...func(hafas.Remark) bool) func(hafas.Remark) bool {
	return func(r hafas.Remark) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

func containsAny(s string, subs ...string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
