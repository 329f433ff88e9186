package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Review Configuration

[analysis]
# Number of support and resistance levels to report
num_levels = 3
# Trend strength fit: "compat" (legacy r-squared baseline) or "ols"
fit_mode = "compat"
# Default review window in days when --start is omitted
lookback_days = 30
# Maximum number of trades evaluated per review
max_trades = 100
# Evaluation workers (0 = one per CPU)
workers = 0

[data]
# Default market data CSV (timestamp,open,high,low,close,volume)
market_data_path = ""
# Default trade log CSV
trades_path = ""
# Default symbol
symbol = ""

[report]
# Output format: "text", "json" or "yaml"
format = "text"
# Enable colored text reports
color = true

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
# Rotating log file
file = false
file_path = ""
max_size = 50
max_backups = 5
max_age = 30
`

func createTemplateConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
