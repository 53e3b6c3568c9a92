package fsm

// Demo returns the built-in example machines in catalog order: traffic,
// device, auth and cicd.
func Demo() []Definition {
	return []Definition{traffic(), device(), auth(), cicd()}
}

func states(names ...string) []State {
	out := make([]State, len(names))
	for i, n := range names {
		out[i] = State{Name: n}
	}
	return out
}

func tr(trigger string, dest string, sources ...string) Transition {
	return Transition{Trigger: trigger, Sources: sources, Dest: dest}
}

func traffic() Definition {
	return Definition{
		Name:    "traffic",
		Kind:    KindMachine,
		Initial: "red",
		States:  states("red", "yellow", "green"),
		Transitions: []Transition{
			tr("next", "green", "red"),
			tr("next", "yellow", "green"),
			tr("next", "red", "yellow"),
			tr("emergency", "red", "green", "yellow"),
		},
	}
}

func device() Definition {
	return Definition{
		Name:    "device",
		Kind:    KindHierarchical,
		Initial: "disconnected",
		States:  states("disconnected", "connected", "error"),
		Transitions: []Transition{
			tr("connect", "connected", "disconnected"),
			tr("disconnect", "disconnected", "connected"),
			tr("fail", "error", Wildcard),
			tr("reset", "disconnected", "error"),
		},
	}
}

func auth() Definition {
	return Definition{
		Name:    "auth",
		Kind:    KindLocked,
		Initial: "logged_out",
		States: states(
			"logged_out", "checking_credentials", "mfa_required",
			"authenticated", "session_expired", "locked_out",
		),
		Transitions: []Transition{
			tr("login", "checking_credentials", "logged_out"),
			tr("credentials_valid", "mfa_required", "checking_credentials"),
			tr("credentials_invalid", "logged_out", "checking_credentials"),
			tr("too_many_attempts", "locked_out", "checking_credentials"),
			tr("mfa_success", "authenticated", "mfa_required"),
			tr("mfa_fail", "logged_out", "mfa_required"),
			tr("logout", "logged_out", "authenticated"),
			tr("session_timeout", "session_expired", "authenticated"),
			tr("relogin", "checking_credentials", "session_expired"),
			tr("unlock", "logged_out", "locked_out"),
		},
	}
}

func cicd() Definition {
	return Definition{
		Name:    "cicd",
		Kind:    KindAsync,
		Initial: "idle",
		States: states(
			"idle", "building_compile", "building_test", "building_package",
			"deploying_staging", "deploying_production", "deployed",
			"failed_build_failed", "failed_test_failed", "failed_deploy_failed",
		),
		Transitions: []Transition{
			tr("start_build", "building_compile", "idle"),
			tr("compile_success", "building_test", "building_compile"),
			tr("compile_error", "failed_build_failed", "building_compile"),
			tr("tests_pass", "building_package", "building_test"),
			tr("tests_fail", "failed_test_failed", "building_test"),
			tr("package_ready", "deploying_staging", "building_package"),
			tr("staging_success", "deploying_production", "deploying_staging"),
			tr("staging_failed", "failed_deploy_failed", "deploying_staging"),
			tr("production_success", "deployed", "deploying_production"),
			tr("production_failed", "failed_deploy_failed", "deploying_production"),
			tr("rollback", "deploying_staging", "deployed"),
			tr("retry", "idle", "failed_build_failed", "failed_test_failed", "failed_deploy_failed"),
		},
	}
}
