/*
Copyright © 2026 the Transit authors.
This file is part of Transit.

Transit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transit.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command transit is a command-line interface for the Transit
// planetary-atmosphere transmission spectrum model.
package main

import (
	"fmt"
	"os"

	"github.com/RSirimanne/transit/transitutil"
)

func main() {
	if err := transitutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
