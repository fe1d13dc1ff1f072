package clinical

import (
	"fmt"
	"strconv"

	"github.com/ayusman/handrom/internal/joint"
)

var narratives = map[Status]string{
	Normal:             "%s reached %s, %.0f%% of the %s target. Motion is within the expected range.",
	Moderate:           "%s reached %s, %.0f%% of the %s target. Motion is improving but remains below target.",
	Limited:            "%s reached %s, %.0f%% of the %s target. Motion is limited and should be reviewed.",
	MinimalDisability:  "%[1]s is %[2]s on a %[4]s scale, %[3].0f%% of normal. Reported disability is minimal.",
	ModerateDisability: "%[1]s is %[2]s on a %[4]s scale, %[3].0f%% of normal. Reported disability is moderate.",
	SevereDisability:   "%[1]s is %[2]s on a %[4]s scale, %[3].0f%% of normal. Reported disability is severe.",
}

func narrate(status Status, info joint.Info, value, target, pct float64) string {
	tmpl, ok := narratives[status]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tmpl, info.Name, formatValue(value, info.Unit), pct, formatValue(target, info.Unit))
}

func formatValue(v float64, u joint.Unit) string {
	switch u {
	case joint.Degrees:
		return strconv.FormatFloat(v, 'f', 0, 64) + string(joint.Degrees)
	case joint.Level:
		return "level " + strconv.FormatFloat(v, 'f', 0, 64)
	default:
		return strconv.FormatFloat(v, 'f', 0, 64) + " " + string(u)
	}
}
