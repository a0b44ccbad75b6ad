package backend

// Entry is a request body for POST /submissions/{path}.
type Entry interface {
	Path() string
}

// Contribution scores a numeric value against a contribution method.
type Contribution struct {
	RSN            string   `json:"rsn"`
	MethodName     string   `json:"methodName"`
	Value          int      `json:"value"`
	ScreenshotURLs []string `json:"screenshotURLs"`
	Description    string   `json:"description"`
}

func (Contribution) Path() string { return "contribution" }

// CollectionLogItem scores a single collection log drop.
type CollectionLogItem struct {
	RSN            string   `json:"rsn"`
	ItemName       string   `json:"itemName"`
	ScreenshotURLs []string `json:"screenshotURLs"`
	Description    string   `json:"description"`
}

func (CollectionLogItem) Path() string { return "collectionlog" }

// ChallengeTime scores a completion time for a challenge or relay leg.
type ChallengeTime struct {
	RSN                string   `json:"rsn"`
	ChallengeName      string   `json:"challengeName"`
	RelayComponentName *string  `json:"relayComponentName"`
	Seconds            float64  `json:"seconds"`
	ScreenshotURLs     []string `json:"screenshotURLs"`
	Description        string   `json:"description"`
}

func (ChallengeTime) Path() string { return "challenge" }

// RecordEntry scores a skill record backed by a video.
type RecordEntry struct {
	RSN          string  `json:"rsn"`
	Skill        string  `json:"skill"`
	HandicapName *string `json:"handicapName"`
	RawValue     int     `json:"rawValue"`
	VideoURL     string  `json:"videoUrl"`
	CompletedAt  string  `json:"completedAt"`
	Description  string  `json:"description"`
}

func (RecordEntry) Path() string { return "record" }

// UnrankedStartingValue records the killcount a player had before the event.
type UnrankedStartingValue struct {
	RSN            string   `json:"rsn"`
	MethodName     string   `json:"methodName"`
	Value          int      `json:"value"`
	ScreenshotURLs []string `json:"screenshotURLs"`
	Description    string   `json:"description"`
}

func (UnrankedStartingValue) Path() string { return "unrankedstartingvalue" }
