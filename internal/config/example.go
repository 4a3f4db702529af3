package config

import (
	"fmt"
	"os"
)

// ExampleYAML is the config written by `monitor init`. It documents every
// section with values that pass validation once the telegram secrets are set.
const ExampleYAML = `# size monitor configuration
sites:
  - name: Example Store
    extractor: generic
    urls:
      - https://example-store.com/product/sneakers-123
      - https://example-store.com/product/sneakers-456
    sizes: ["US 9", "US 10", "US 11"]
    check_interval: 300
    enabled: true
  - name: Another Store
    extractor: nike
    urls:
      - https://another-store.com/shoes/running-shoes
    sizes: ["42", "43", "44"]
    check_interval: 600
    enabled: false

notifications:
  telegram:
    enabled: true
    # bot_token / chat_id fall back to TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID.
    bot_token: ""
    chat_id: ""

global_check_interval: 300
max_concurrent_checks: 5
timeout: 30s

log:
  level: info

http:
  enabled: false
  addr: ":8744"

history:
  enabled: false
  path: ./monitor-history.db
`

// WriteExample writes the example config to path, refusing to overwrite.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	}
	return os.WriteFile(path, []byte(ExampleYAML), 0o644)
}
