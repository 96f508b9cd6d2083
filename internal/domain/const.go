package domain

const (
	// MaxBatchSize bounds the number of identifiers reconciled in one statement
	MaxBatchSize = 200

	// CoverFolder is the cover store folder every vendor upload goes under
	CoverFolder = "covers"

	// Stage names, used in logs, metrics and dedup ids
	StageReconcile  = "reconcile"
	StageValidate   = "validate"
	StagePublish    = "publish"
	StageEnrich     = "enrich"
	StageDelete     = "delete"
	StageSearchMiss = "search-miss"
)
