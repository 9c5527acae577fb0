package domain

import (
	"regexp"
	"slices"
	"strings"
)

const (
	subjectRefBase = "https://npmx.dev/package/"

	// maxPackageNameLength is the npm registry limit
	maxPackageNameLength = 214
)

var packageNamePattern = regexp.MustCompile(`^(?:@[a-z0-9][a-z0-9._~-]*/)?[a-z0-9][a-z0-9._~-]*$`)

// PackageSubjectRef maps a package name to the subject its like records reference.
func PackageSubjectRef(packageName string) string {
	return subjectRefBase + packageName
}

// IsValidPackageName reports whether name is a valid npm package name, scoped or not.
func IsValidPackageName(name string) bool {
	if name == "" || len(name) > maxPackageNameLength {
		return false
	}
	return packageNamePattern.MatchString(name)
}

// PackageParams is a package route parameter split into its parts
type PackageParams struct {
	PackageName string
	Version     string   // empty when not given
	Rest        []string // path segments after the version
}

// ParsePackageParam parses "<name>[/v/<version>[/<path>...]]", name may be scoped.
// A trailing "v" with nothing after it is part of the name.
func ParsePackageParam(param string) PackageParams {
	param = strings.Trim(param, "/")
	segments := strings.Split(param, "/")

	vIndex := slices.Index(segments, "v")
	if vIndex != -1 && vIndex < len(segments)-1 {
		return PackageParams{
			PackageName: strings.Join(segments[:vIndex], "/"),
			Version:     segments[vIndex+1],
			Rest:        segments[vIndex+2:],
		}
	}

	return PackageParams{
		PackageName: param,
		Rest:        []string{},
	}
}
