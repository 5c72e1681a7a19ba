package contract

// Canonical names of the built-in tools. The pre-router, the registry, and
// the deterministic formatters all key on these.
const (
	ToolNBAQuery      = "nba_query"
	ToolWeatherQuery  = "weather_query"
	ToolClock         = "clock"
	ToolCalculator    = "calculator"
	ToolSystemInfo    = "system_info"
	ToolFileRead      = "file_read"
	ToolListDirectory = "list_directory"
	ToolClipboardRead = "clipboard_read"
	ToolWebSearch     = "web_search"
)
