// llmgateway routes LLM calls across providers by prompt complexity,
// caches responses, fails over between providers and tracks spend.
//
// Usage:
//
//	# Start the HTTP gateway with built-in defaults
//	llmgateway serve
//
//	# Start with a configuration file
//	llmgateway serve --config /etc/llmgateway/llmgateway.yaml
//
//	# Send a single prompt
//	llmgateway query "Summarize the quarterly report" --feature summaries
//
//	# Dry-run routing and cost
//	llmgateway estimate "Compare these two contracts" --tier CRITICAL
//
//	# Daily spend from the usage ledger
//	llmgateway usage --since 2026-03-01 --output csv
//
//	# Check a configuration file
//	llmgateway validate --config llmgateway.yaml
package main

func main() {
	Execute()
}
