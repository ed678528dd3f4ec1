package buildinfo

const Graffiti = `
  ____  _    _         _____
 / __ \| |  | |  /\   |  __ \
| |  | | |  | | /  \  | |  | |
| |  | | |  | |/ /\ \ | |  | |
| |__| | |__| / ____ \| |__| |
 \___\_\\____/_/    \_\_____/

`

var (
	BuildTag string = "v0.0.0"
	Name     string = "QUAD"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
