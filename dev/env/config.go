package devenv

// BocaTestConfig points the live tests at a real BOCA server, it is read from
// dev/.state/boca_config.json.
type BocaTestConfig struct {
	Ip       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
	// SubmitProblem enables the live submission test when set.
	SubmitProblem string `json:"submit_problem"`
}

const BocaTestConfigFile = "boca_config.json"
