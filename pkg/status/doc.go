/*
Package status words batch progress for the console.

🎯 Purpose:
- Formats per-item, per-batch and summary lines
- Keeps the wording in one place so commands stay consistent

🔄 Flow:
1. The batch engine announces each batch of a task
2. Each seed invocation produces an item line
3. The finished snapshot produces a summary line

🔍 Example:

	f := status.NewDefaultFormatter()
	f.FormatSummary("Copied", snap) // "Copied 3 files in 0.012 secs."
*/
package status
