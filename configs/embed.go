package configs

import _ "embed"

// PortalDefault is the shipped portal profile. The endpoint paths, chat
// constants, and result phrases in it mirror observed agentseller traffic;
// none of them are documented by the portal.
//
//go:embed portal.yaml
var PortalDefault []byte
