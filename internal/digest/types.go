// Package digest implements the daily news digest pipeline: candidate
// filtering and scoring, dedup and clustering, slot-constrained
// selection, validation and persistence.
package digest

import "time"

// Impact signal labels.
const (
	LabelPolicy       = "policy"
	LabelSanctions    = "sanctions"
	LabelCapex        = "capex"
	LabelInfra        = "infra"
	LabelSecurity     = "security"
	LabelEarnings     = "earnings"
	LabelMarketDemand = "market-demand"
)

// Candidate statuses.
const (
	StatusKept    = "kept"
	StatusMerged  = "merged"
	StatusDropped = "dropped"
)

// ImpactSignal pairs a label with its supporting evidence text.
type ImpactSignal struct {
	Label    string `json:"label"`
	Evidence string `json:"evidence"`
}

// Item is one published digest entry.
type Item struct {
	ID                  string         `json:"id"`
	Date                string         `json:"date"`
	Category            string         `json:"category"`
	Title               string         `json:"title"`
	Summary             []string       `json:"summary"`
	WhyImportant        string         `json:"whyImportant"`
	ImportanceRationale string         `json:"importanceRationale"`
	ImpactSignals       []ImpactSignal `json:"impactSignals"`
	DedupeKey           string         `json:"dedupeKey"`
	ClusterKey          string         `json:"clusterKey"`
	MatchedTo           string         `json:"matchedTo,omitempty"`
	SourceName          string         `json:"sourceName"`
	SourceURL           string         `json:"sourceUrl"`
	PublishedAt         string         `json:"publishedAt"`
	ReadTimeSec         int            `json:"readTimeSec"`
	Status              string         `json:"status"`
	Importance          float64        `json:"importance"`
	ImportanceRaw       int            `json:"importanceRaw"`
	QualityLabel        string         `json:"qualityLabel"`
	QualityReason       string         `json:"qualityReason"`
	IsBriefing          bool           `json:"isBriefing"`
	IsBreaking          bool           `json:"isBreaking"`
	IsCarriedOver       bool           `json:"isCarriedOver,omitempty"`
	DropReason          string         `json:"dropReason,omitempty"`
}

// Digest is the daily output document.
type Digest struct {
	Date              string `json:"date"`
	SelectionCriteria string `json:"selectionCriteria"`
	EditorNote        string `json:"editorNote"`
	Question          string `json:"question"`
	LastUpdatedAt     string `json:"lastUpdatedAt"`
	Items             []Item `json:"items"`
}

// TopicStat counts pipeline flow per feed topic.
type TopicStat struct {
	In      int `json:"in"`
	Out     int `json:"out"`
	Dropped int `json:"dropped"`
}

// BreakingSelection summarizes how breaking candidates fared.
type BreakingSelection struct {
	Candidates    int     `json:"candidates"`
	Selected      int     `json:"selected"`
	SelectionRate float64 `json:"selectionRate"`
	SelectedShare float64 `json:"selectedShare"`
}

// TopDiversity summarizes source and category spread of the output.
type TopDiversity struct {
	UniqueSources    int `json:"uniqueSources"`
	UniqueCategories int `json:"uniqueCategories"`
	MaxPerSource     int `json:"maxPerSource"`
}

// MetricsSummary is the per-run pipeline report stored next to the
// digest.
type MetricsSummary struct {
	Type                   string                    `json:"type"`
	Date                   string                    `json:"date"`
	TotalIn                int                       `json:"totalIn"`
	TotalOut               int                       `json:"totalOut"`
	Dropped                int                       `json:"dropped"`
	DropReasons            map[string]int            `json:"dropReasons"`
	ImpactLabels           map[string]int            `json:"impactLabels"`
	Sources                map[string]int            `json:"sources"`
	TopicStats             map[string]TopicStat      `json:"topicStats,omitempty"`
	SourceDropReasons      map[string]map[string]int `json:"sourceDropReasons,omitempty"`
	BreakingSelectionStats *BreakingSelection        `json:"breakingSelection,omitempty"`
	Categories             map[string]int            `json:"categories"`
	ImportanceDistribution map[string]int            `json:"importanceDistribution"`
	TopDiversity           TopDiversity              `json:"topDiversity"`
}

// Enrichment holds the model-produced fields for one candidate.
type Enrichment struct {
	TitleKo             string
	SummaryLines        []string
	WhyImportant        string
	ImportanceRationale string
	DedupeKey           string
	ImportanceScore     float64
	ImportanceRawScore  int
	ImpactSignals       []ImpactSignal
	CategoryLabel       string
	QualityLabel        string
	QualityReason       string
	QualityTags         []string
}

// Candidate is one article flowing through the pipeline before it
// becomes a digest item.
type Candidate struct {
	Title            string
	Link             string
	Summary          string
	Topic            string
	SourceName       string
	SourceRaw        string
	SourceNormalized string
	PublishedAt      *time.Time
	AgeHours         *float64
	ImpactSignals    []string
	Score            float64
	DedupeKey        string
	ClusterKey       string
	ReadTimeSec      int
	MatchedTo        string
	IsBreaking       bool

	Status      string
	MergeReason string
	DropReason  string
	FullText    string

	AI              *Enrichment
	AIImportance    *float64
	AIImportanceRaw *int
	AICategory      string
	AIQuality       string
}
