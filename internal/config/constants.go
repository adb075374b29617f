package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "Avocado Analytics"

	// Dashboard texts
	PageTitle       = "Avocado Analytics: Know Your Avocados"
	PageEmoji       = "🥑"
	PageHeading     = "Avocado Analytics"
	PageDescription = "Analyze the behavior of avocado prices and the number of avocados sold in the US between 2015 and 2018"
	FontStylesheet  = "https://fonts.googleapis.com/css2?family=Lato:wght@400;700&display=swap"
	PlotlyScriptURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

	// Chart titles and colors
	PriceChartID     = "price-chart"
	PriceChartTitle  = "Average Price of Avocados"
	PriceChartColor  = "#17B897"
	VolumeChartID    = "volume-chart"
	VolumeChartTitle = "Avocados Sold"
	VolumeChartColor = "#E12D39"

	// Default filter selection
	DefaultRegion = "Albany"
	DefaultType   = "organic"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultRequestTimeout = 30 * time.Second
	WebSocketPingPeriod   = 30 * time.Second
	WebSocketPongWait     = 60 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketMaxMessageSize  = 4096

	// File Paths (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultDatasetPath  = "data/avocado.csv"
	DefaultQueryLogPath = "data/queries.db"

	// Query log
	DefaultQueryRetention = 30 * 24 * time.Hour
	DefaultRecentQueries  = 20
	MaxRecentQueries      = 500

	// Cron schedules (with seconds field)
	DefaultPruneSchedule = "0 0 3 * * *"
	DefaultStatsSchedule = "0 */5 * * * *"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Endpoints
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
