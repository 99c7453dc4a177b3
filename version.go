package escrituras

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/LACSistemas/EscriturasNew.Version=...".
var Version = "0.1.0"
