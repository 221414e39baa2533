package models

// ContentUnavailable is the body text used when no text could be retrieved
const ContentUnavailable = "本文取得失敗"

// FailureReason tags why a URL (or one stage of it) failed
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonFetchStatic FailureReason = "fetch_static"
	ReasonFetchRender FailureReason = "fetch_render"
	ReasonScreenshot  FailureReason = "screenshot"
	ReasonOCR         FailureReason = "ocr"
	ReasonLLMText     FailureReason = "llm_text"
	ReasonLLMImage    FailureReason = "llm_image"
	ReasonUpload      FailureReason = "upload"
	ReasonRowNotFound FailureReason = "row_not_found"
	ReasonRowWrite    FailureReason = "row_write"
	ReasonPanic       FailureReason = "panic"
)

// RenderResult is what the headless browser produced for one URL
type RenderResult struct {
	HTML           string
	ScreenshotPath string
}

// FetchResult is the per-URL retrieval output. The screenshot file is owned
// by the pipeline iteration that created it and is removed when it ends.
type FetchResult struct {
	URL             string
	StaticHTML      string
	RenderedHTML    string
	Text            string
	ScreenshotPath  string
	ImageDescriptor string
	ImageURL        string
	OCRText         string
	Failures        []FailureReason
}

// CombinedImageText joins the image descriptor and OCR text the way the
// judges and matcher consume them
func (f *FetchResult) CombinedImageText() string {
	return f.ImageDescriptor + "\n" + f.OCRText
}

// AddFailure records a degraded stage
func (f *FetchResult) AddFailure(reason FailureReason) {
	f.Failures = append(f.Failures, reason)
}

// HasScreenshot reports whether a screenshot path was produced
func (f *FetchResult) HasScreenshot() bool {
	return f.ScreenshotPath != ""
}
