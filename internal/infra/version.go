package infra

// Version はビルド時に -ldflags で上書きされる。
var Version = "dev"
