package config

type WorkerKeyStruct struct {
	PersistStatesQueue string
	PurgeSessionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistStatesQueue: "persist_states_queue",
	PurgeSessionsQueue: "purge_sessions_queue",
}
