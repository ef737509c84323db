// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package optimizer

import (
	"fmt"
	"strconv"

	"github.com/velarno/copper/pkg/defaults"
	"github.com/velarno/copper/pkg/template"
)

// SubTemplateName returns the name of the i-th (1-based) of total parts
// produced from name, e.g. sub_era5_007. The index is zero-padded to
// max(3, digits(total)) so names sort in part order.
func SubTemplateName(name string, i, total int) string {
	width := max(defaults.SubTemplatePadWidth, len(strconv.Itoa(total)))
	return fmt.Sprintf("sub_%s_%0*d", name, width, i)
}

// SubTemplates turns the parts of an optimization of parent into new
// template states bound to the parent's dataset.
func SubTemplates(parent *template.State, parts []template.Parameters) []*template.State {
	out := make([]*template.State, 0, len(parts))
	for i, part := range parts {
		name := SubTemplateName(parent.Name, i+1, len(parts))
		out = append(out, template.NewStateFromParameters(name, parent.DatasetID, part))
	}
	return out
}
