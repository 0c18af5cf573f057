package caption

// KnownModels are the model names recognised in captions.
var KnownModels = []string{
	"wolf", "banshee", "banshee gt", "banshee ss", "hawk", "elite", "albatross", "gnarwhal", "gnarwhal 2",
	"quake", "aftershock", "marvel", "triton", "accelerator", "accelerator s", "al7", "warthog", "yeti",
	"ghost", "avalanche", "big al", "ape", "glitch", "swirl", "tigershark", "gsquared", "proto",
	"og", "alpha", "covenant", "direwolf", "buffalo", "rhino", "pelican", "thrush", "eagle",
	"raven", "sparrow", "swallow", "warbird", "kingfisher", "hummingbird", "falcon", "owl", "swan",
	"phoenix", "griffin", "dragon", "hydra", "kraken", "leviathan", "chimera", "basilisk", "manticore",
	"sphinx", "pegasus", "unicorn", "minotaur", "centaur", "harpy", "siren", "medusa", "cyclops",
	"titan", "atlas", "hercules", "achilles", "ares", "apollo", "artemis", "athena", "hades", "poseidon",
	"zeus", "chronos", "hyperion", "oceanus", "prometheus", "rhea", "selene", "theia", "themis",
	"council", "reaper",
}

// KnownColorways are the colorway names recognised in captions.
var KnownColorways = []string{
	"aqua", "black", "blue", "bronze", "brown", "clear", "copper", "gold", "gray", "green",
	"orange", "pink", "purple", "red", "silver", "white", "yellow", "raw", "polished",
	"ano", "anodized", "fade", "splash", "swirl", "acid", "galaxy", "tie dye", "marble",
	"solid", "transparent", "opaque", "matte", "gloss", "satin", "brushed", "blasted",
	"nickel", "titanium", "brass", "aluminum", "steel", "rainbow", "oil slick",
	"two tone", "dual tone", "tri color", "multi color", "special edition", "limited edition",
	"prototype", "sample", "test", "experimental", "one off", "unique", "custom", "standard",
	"regular", "classic", "original", "new", "v2", "mk2", "2.0", "second gen", "next gen",
	"white walker",
}

// quantityPatterns are tried in order; the first match wins.
var quantityPatterns = []string{
	`(\d+)\s*available`,
	`(\d+)\s*pieces`,
	`(\d+)\s*pcs`,
	`(\d+)\s*units`,
	`quantity:\s*(\d+)`,
	`qty:\s*(\d+)`,
	`limited to\s*(\d+)`,
	`only\s*(\d+)`,
	`(\d+)\s*total`,
	`(\d+)\s*drops?`,
	`dropping\s*(\d+)`,
	`releasing\s*(\d+)`,
	`(\d+)\s*passed\s*qc`,
}

var glitchMarkers = []string{"glitch", "failed qc", "failed to pass qc"}
