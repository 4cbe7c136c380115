package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Pipeline configuration
	BatchSize       int
	FetchWorkers    int
	ParseWorkers    int
	FetchTimeout    int
	RefreshInterval int
	ExtractContent  bool
	RulesFile       string

	// Application configuration
	Port              string
	BaseUrl           string
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
