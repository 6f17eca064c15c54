package types

// Platform identifies the social network a snapshot was collected from.
type Platform string

// Platform values enumerate the supported social networks.
const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every supported platform in output column order.
var Platforms = []Platform{PlatformInstagram, PlatformTikTok, PlatformYouTube}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTikTok, PlatformYouTube:
		return true
	default:
		return false
	}
}

// SinkType defines the feature table output backend.
type SinkType string

// SinkType values enumerate the supported output backends.
const (
	SinkCSV      SinkType = "csv"
	SinkJSONL    SinkType = "jsonl"
	SinkS3       SinkType = "s3"
	SinkPostgres SinkType = "postgres"
)

// TableName identifies an input table in skip reports and schema errors.
type TableName string

const (
	TableChart    TableName = "chart"
	TableSocial   TableName = "social"
	TableMetadata TableName = "metadata"
)
