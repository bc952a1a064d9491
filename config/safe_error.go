package config

// SafeErrorMessage returns err.Error() in debug mode and the fallback
// message otherwise, so internal error detail never leaks to clients in
// production. A nil GlobalConfig is treated as a development environment.
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
