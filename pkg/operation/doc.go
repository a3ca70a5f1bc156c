// Package operation holds the built-in seeds and the command metadata that
// binds them to the batch engine.
//
// 🎯 Seeds:
// - Copy (copy, cp): file into a destination directory, optionally with parents
// - JSON (json): minify or indent JSON, optionally dropping comments
// - Mkdir (mkdir, md): create a directory and its parents
// - Remove (remove, rm): recursive delete
// - Clean (clean, cl): empty a directory, creating it when missing
//
// 📦 Repack is not a seed. It rewrites one package.json into another directory
// and can run npm install / npm pack there.
//
// 🔍 Example:
//
//	cmd, _ := ocli.Define(operation.CopyMeta(cwd))
//	snap, err := cmd.Fn(ctx, "src/**/*.png", "dist/", map[string]any{"parents": true})
package operation
