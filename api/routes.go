package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// HealthEndpoint reports the availability of each backend
	HealthEndpoint = "/health"
	// MetricsEndpoint serves the prometheus metrics
	MetricsEndpoint = "/metrics"

	ElectionURLParam   = "electionID"
	TransitionURLParam = "transition"
	// ElectionsEndpoint creates (POST) and lists (GET) elections
	ElectionsEndpoint = "/elections"
	ElectionEndpoint  = "/elections/{" + ElectionURLParam + "}"
	// CandidatesEndpoint adds a candidate to a pending election
	CandidatesEndpoint = ElectionEndpoint + "/candidates"
	// ElectionTransitionEndpoint moves an election to another state, the
	// transition is one of start, end, reset or finalize
	ElectionTransitionEndpoint = ElectionEndpoint + "/{" + TransitionURLParam + ":start|end|reset|finalize}"
	VotesEndpoint              = ElectionEndpoint + "/votes"
	HumanityEndpoint           = ElectionEndpoint + "/humanity"
	HumanityAttestEndpoint     = ElectionEndpoint + "/humanity/attest"
	EligibilityEndpoint        = ElectionEndpoint + "/eligibility"
	ResultsEndpoint            = ElectionEndpoint + "/results"

	AddressURLParam = "address"
	// AuthoritiesEndpoint registers (POST) and lists (GET) authorities
	AuthoritiesEndpoint      = "/authorities"
	AuthoritiesAuditEndpoint = "/authorities/audit"
	AuthorityEndpoint        = "/authorities/{" + AddressURLParam + "}"
	AuthorityActionsEndpoint = AuthorityEndpoint + "/actions"
	// AuditEndpoint lists the audit trail, filtered by the actor,
	// electionId and limit query parameters
	AuditEndpoint = "/audit"

	// ProofsEndpoint generates a proof through the configured prover
	ProofsEndpoint = "/proofs"

	CIDURLParam = "cid"
	// MetadataEndpoint stores an election metadata document
	MetadataEndpoint    = "/metadata"
	MetadataCIDEndpoint = "/metadata/{" + CIDURLParam + "}"
)
