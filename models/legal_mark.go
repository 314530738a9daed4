package models

// LegalMark is a named category of legal violation. Shared reference data:
// not owned by any one case, and delete-restricted while any artifact
// annotation references it.
//
// Timestamps are RFC3339 text managed by the settings service, not by gorm:
// the optimistic-concurrency check compares the caller's last-seen
// updatedAt for exact equality, so the stored representation must be the
// same string the caller was handed.
type LegalMark struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Label       string  `gorm:"not null;uniqueIndex" json:"label"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	ArticleText string  `gorm:"type:text" json:"articleText"`
	CreatedAt   string  `gorm:"not null" json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	UpdatedBy   *string `json:"updatedBy"`

	History []LegalMarkHistory `gorm:"foreignKey:LegalMarkID;constraint:OnDelete:CASCADE" json:"-"`
}

// ArtifactLegalMark links an artifact to a legal mark, at most one per
// artifact. ArticleText is a point-in-time copy: later edits to the mark do
// not rewrite historical annotations.
type ArtifactLegalMark struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	ArtifactID  uint       `gorm:"not null;uniqueIndex" json:"artifactId"`
	LegalMarkID uint       `gorm:"not null;index" json:"legalMarkId"`
	LegalMark   *LegalMark `gorm:"foreignKey:LegalMarkID;constraint:OnDelete:RESTRICT" json:"-"`
	ArticleText string     `gorm:"type:text;not null" json:"articleText"`
	Comment     *string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt   string     `gorm:"not null" json:"createdAt"`
	UpdatedAt   *string    `json:"updatedAt"`
}

// LegalMarkHistory is the append-only audit log of prior article texts.
// A row is written immediately before every successful update or rollback,
// inside the same transaction, so the trail is gapless.
type LegalMarkHistory struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	LegalMarkID uint    `gorm:"not null;index" json:"legalMarkId"`
	ArticleText string  `gorm:"type:text;not null" json:"articleText"`
	UpdatedBy   *string `json:"updatedBy"`
	UpdatedAt   string  `gorm:"not null" json:"updatedAt"`
}
