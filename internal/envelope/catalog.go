package envelope

// KnownEventTypes is the catalog of event types accepted by schema v1.0.
var KnownEventTypes = map[string]struct{}{
	// Publish
	"publish.asset.usd":        {},
	"publish.anim.usd":         {},
	"publish.camera.usd":       {},
	"publish.customanim.usd":   {},
	"publish.previs_asset.usd": {},
	// Tool
	"dcc.launch":               {},
	"file.open":                {},
	"file.create":              {},
	"shot.setup":               {},
	"playblast.create":         {},
	"build.houdini.component":  {},
	"texture.export.substance": {},
	"texture.convert.tex":      {},
	// Farm
	"tractor.job.spool":     {},
	"tractor.farm.snapshot": {},
	// Render
	"render.stats.summary": {},
	// Storage
	"storage.scan.summary": {},
	"storage.scan.bucket":  {},
}

// durationAliases maps an event type to the metrics key that carries its
// elapsed time. The tool events never agreed on one field name, so the alias
// is resolved once at flattening time into the duration_ms column instead of
// being coalesced ad hoc in every downstream query.
var durationAliases = map[string]string{
	"dcc.launch":               "launch_duration_ms",
	"file.open":                "open_ms",
	"file.create":              "duration_ms",
	"shot.setup":               "setup_ms",
	"playblast.create":         "duration_ms",
	"build.houdini.component":  "build_ms",
	"texture.export.substance": "export_ms",
	"texture.convert.tex":      "convert_ms",
}
