/*
Package config reads the files that drive ocli commands and holds the layered
option record every command shares.

🎯 Purpose:
- Reads single-operation files ({src, dest, options})
- Reads task files ({options, paths})
- Decodes and validates options eagerly
- Supports JSON (with comments), YAML, TOML and HCL

🔄 Flow:
1. The parser is picked by file extension
2. The document is decoded into a raw mapping
3. Shapes are checked and options decoded
4. File options are layered over the caller's defaults

⚡ Option precedence (lowest first):
 1. command defaults
 2. task "options"
 3. inline options of a "paths" entry

🔍 Example:

	cfg, err := config.ReadBatchConfig(ctx, "copy.json", defaults)
	for _, entry := range cfg.Paths {
		// entry.Src, entry.Dest, entry.Options
	}
*/
package config
