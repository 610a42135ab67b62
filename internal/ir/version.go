package ir

// EngineVersion is the tfverify engine version recorded with every stored run.
const EngineVersion = "0.1.0"
