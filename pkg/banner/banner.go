package banner

import (
	"fmt"

	"talkbridge/pkg/config"
)

const banner = `
████████╗ █████╗ ██╗     ██╗  ██╗██████╗ ██████╗ ██╗██████╗  ██████╗ ███████╗
╚══██╔══╝██╔══██╗██║     ██║ ██╔╝██╔══██╗██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝
   ██║   ███████║██║     █████╔╝ ██████╔╝██████╔╝██║██║  ██║██║  ███╗█████╗
   ██║   ██╔══██║██║     ██╔═██╗ ██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══╝
   ██║   ██║  ██║███████╗██║  ██╗██████╔╝██║  ██║██║██████╔╝╚██████╔╝███████╗
   ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚══════╝
`

// Print writes the startup banner with the effective configuration summary.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:     %s\n", cfg.Addr())
	fmt.Printf("Source DB:  %s\n", cfg.Source.DBPath)
	fmt.Printf("State:      %s\n", cfg.Source.StatePath)
	if version != "" {
		fmt.Printf("Version:    %s\n", version)
	}
	fmt.Printf("Poll:       %s\n", cfg.Bridge.PollInterval.Duration())
	fmt.Printf("Drain:      %s\n", cfg.Bridge.DrainInterval.Duration())
	fmt.Printf("Dispatch:   %s\n", cfg.Actions.DispatchEvery.Duration())

	fmt.Println("\n== Checks =====================================================")
	if n := len(cfg.Security.APIKeys); n > 0 {
		fmt.Printf("- API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- API keys: MISSING (control endpoints are open)")
	}
	if cfg.Bridge.Webhook.URL != "" {
		fmt.Println("- Webhook: configured")
	} else {
		fmt.Println("- Webhook: disabled")
	}
	if cfg.Actions.Endpoint != "" {
		fmt.Println("- Action endpoint: configured")
	} else {
		fmt.Println("- Action endpoint: disabled (submissions will fail)")
	}
	if cfg.Maintenance.Enabled {
		fmt.Printf("- Maintenance: enabled (cron=%s)\n", cfg.Maintenance.Cron)
	} else {
		fmt.Println("- Maintenance: disabled")
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /v1/events/recent  - recent domain events")
	fmt.Println("GET  /v1/events/stream  - live event stream (SSE)")
	fmt.Println("POST /v1/actions/text   - queue a text send")
	fmt.Println("GET  /status            - bridge status and watermark")
	fmt.Println("\n== Logs: ======================================================")
}
