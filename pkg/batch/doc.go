// Package batch turns a single item seed operation into batch and task processing.
//
//	               +-----------+
//	               |  Engine   |
//	               +-----+-----+
//	                     |
//	      +--------------+--------------+
//	      |                             |
//	+-----+-----+                 +-----+-----+
//	|   Batch   |  <- one per --  |   Task    |
//	| (globbed) |     entry       | (config)  |
//	+-----+-----+                 +-----------+
//	      |
//	+-----+-----+
//	|   Seed    |  once per path, concurrently
//	+-----------+
//
// 🎯 Purpose:
// - Expands sources with the glob resolver
// - Calls the seed once per path with the layered options
// - Counts completed items in a stats.Stats
// - Merges the stats of every batch of a task
//
// 🔄 Call shapes (Engine.Run):
//   - Run(ctx, taskFile)
//   - Run(ctx, src, dest)
//   - Run(ctx, src, options)
//   - Run(ctx, src, dest, options)
//
// ⚡ Outcomes per item:
//   - seed returns true: counted
//   - seed returns false: skipped, not counted
//   - seed returns an error: the batch fails once its siblings settle
//
// 🔍 Example:
//
//	seed := batch.TransferSeed(func(ctx context.Context, path, dest string, opts config.Options) (bool, error) {
//		return true, fsutil.CopyFile(path, filepath.Join(dest, filepath.Base(path)), fsutil.CopyOptions{})
//	})
//	engine, err := batch.New("copy", seed, batch.Settings{
//		UseGlobs: true,
//		Files:    true,
//		Defaults: config.Options{Cwd: config.Ptr(cwd)},
//	})
//	snap, err := engine.Run(ctx, "src/**/*.txt", "dist")
package batch
