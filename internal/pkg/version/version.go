// Package version 링커 플래그로 주입된 빌드 정보와 실행 환경 정보를 제공합니다.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const unknown = "unknown"

// 빌드 시점에 -ldflags "-X .../version.appVersion=..." 형태로 주입됩니다.
var (
	appVersion    = ""
	gitCommitHash = ""
	buildDate     = ""
)

// readBuildInfo 테스트에서 교체할 수 있도록 변수로 선언합니다.
var readBuildInfo = debug.ReadBuildInfo

var (
	infoOnce sync.Once
	info     Info
)

// Info 애플리케이션의 빌드 정보입니다. /health 응답과 시작 로그에 사용됩니다.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Dirty     bool   `json:"dirty"`
}

// Get 빌드 정보를 반환합니다. 최초 호출 시 한 번만 계산됩니다.
func Get() Info {
	infoOnce.Do(func() {
		info = resolve(Info{
			Version:   strings.TrimSpace(appVersion),
			Commit:    strings.TrimSpace(gitCommitHash),
			BuildDate: strings.TrimSpace(buildDate),
		})
	})

	return info
}

// resolve 주입되지 않은 항목을 실행 파일의 VCS 메타데이터와 런타임 정보로 채웁니다.
func resolve(bi Info) Info {
	bi.GoVersion = runtime.Version()
	bi.OS = runtime.GOOS
	bi.Arch = runtime.GOARCH

	if val, ok := readBuildInfo(); ok {
		for _, setting := range val.Settings {
			switch setting.Key {
			case "vcs.revision":
				if bi.Commit == "" {
					bi.Commit = setting.Value
				}
			case "vcs.time":
				if bi.BuildDate == "" {
					bi.BuildDate = setting.Value
				}
			case "vcs.modified":
				bi.Dirty = setting.Value == "true"
			}
		}

		if bi.Version == "" && val.Main.Version != "" && val.Main.Version != "(devel)" {
			bi.Version = val.Main.Version
		}
	}

	if bi.Version == "" {
		bi.Version = unknown
	}
	if bi.Commit == "" {
		bi.Commit = unknown
	}

	return bi
}

// String 예: "v1.2.0+dirty (commit: f25b8bf, go1.24.0 linux/amd64)"
func (i Info) String() string {
	v := i.Version
	if i.Dirty {
		v += "+dirty"
	}

	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return fmt.Sprintf("%s (commit: %s, %s %s/%s)", v, commit, i.GoVersion, i.OS, i.Arch)
}
