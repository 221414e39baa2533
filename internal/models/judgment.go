package models

import (
	"fmt"
	"strings"
)

// Sentinel labels and messages written in place of a model judgment
const (
	NoCategory        = "カテゴリー該当なし"
	ImageNotAnalyzed  = "画像未解析"
	LLMNotConfigured  = "GPT未実行"
	TextErrorPrefix   = "GPTエラー: "
	ImageErrorPrefix  = "画像GPTエラー: "
	DefaultNoReason   = "なし"
	oversizedTemplate = "画像サイズ過大（%dバイト）でGPT不可"
)

// OversizedImageMessage is the refusal written when an encoded image is over budget
func OversizedImageMessage(size int) string {
	return fmt.Sprintf(oversizedTemplate, size)
}

// JudgmentKind distinguishes the text and image judgments
type JudgmentKind string

const (
	JudgmentText  JudgmentKind = "text"
	JudgmentImage JudgmentKind = "image"
)

// JudgmentStatus is the outcome of one judgment call and its parse
type JudgmentStatus string

const (
	JudgmentOK          JudgmentStatus = "ok"
	JudgmentNoCategory  JudgmentStatus = "no_category"
	JudgmentUnparseable JudgmentStatus = "unparseable"
	JudgmentError       JudgmentStatus = "error"
	JudgmentSkipped     JudgmentStatus = "skipped"
	JudgmentRefused     JudgmentStatus = "refused"
)

// inconclusiveMarkers flag a raw answer the model itself could not settle
var inconclusiveMarkers = []string{"要確認", "判定できません", "未解析"}

// Judgment is the typed result of an LLM genre judgment
type Judgment struct {
	Kind   JudgmentKind   `json:"kind"`
	Status JudgmentStatus `json:"status"`
	Label  string         `json:"label"`
	Reason string         `json:"reason,omitempty"`
	Raw    string         `json:"raw,omitempty"`
}

// Display renders the opinion string written to the sheet
func (j *Judgment) Display() string {
	switch j.Status {
	case JudgmentOK:
		if j.Kind == JudgmentImage && j.Raw != "" {
			return j.Raw
		}
		reason := j.Reason
		if reason == "" {
			reason = DefaultNoReason
		}
		return fmt.Sprintf("[ジャンル]: %s / [理由]: %s", j.Label, reason)
	case JudgmentNoCategory, JudgmentUnparseable:
		if j.Kind == JudgmentImage && j.Raw != "" {
			return j.Raw
		}
		return "[ジャンル]: " + NoCategory
	default:
		return j.Raw
	}
}

// Genres splits a comma separated label into individual genre names,
// dropping trailing parenthetical notes such as "（疑いあり）"
func (j *Judgment) Genres() []string {
	if j.Status != JudgmentOK {
		return nil
	}
	parts := strings.FieldsFunc(j.Label, func(r rune) bool {
		return r == ',' || r == '、' || r == '，'
	})
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if i := strings.IndexAny(p, "(（"); i > 0 {
			p = strings.TrimSpace(p[:i])
		}
		if p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

// HasGenreIn reports whether any parsed genre is in the set
func (j *Judgment) HasGenreIn(set []string) bool {
	for _, g := range j.Genres() {
		for _, s := range set {
			if g == s {
				return true
			}
		}
	}
	return false
}

// Inconclusive reports whether the judgment cannot stand as the preferred opinion
func (j *Judgment) Inconclusive() bool {
	if j.Status != JudgmentOK {
		return true
	}
	for _, m := range inconclusiveMarkers {
		if strings.Contains(j.Raw, m) {
			return true
		}
	}
	return false
}

// FinalGenre is the normalised genre label for the sheet
func (j *Judgment) FinalGenre() string {
	if j.Status != JudgmentOK || j.Label == "" {
		return NoCategory
	}
	return j.Label
}
