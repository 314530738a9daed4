package services

// Input bounds and per-file byte ceilings for artifact captures.
const (
	CaseDirPrefix = "case-"

	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
	MaxURLLength         = 2048
	MaxSourceLength      = 200
	MaxMetaLength        = 20000
	MaxLabelLength       = 200
	MaxLegalTextLength   = 1000
	MaxCommentLength     = 4000
	MaxMarksPerUpdate    = 500

	MaxScreenshotBytes = 15 * 1024 * 1024
	MaxHTMLBytes       = 5 * 1024 * 1024
	MaxTextBytes       = 2 * 1024 * 1024
)
