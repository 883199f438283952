package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ LinkStore   = (*MemoryLinkStore)(nil)
	_ TenantStore = (*MemoryTenantStore)(nil)

	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ RawConfigLoader = staticRawConfigLoader{}
	_ MetricsRecorder = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
