// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"encoding/json"
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func TestModelJSONRoundTrip(t *testing.T) {
	c.Convey("Given every known model", t, func() {
		for m := range modelNames {
			c.Convey("Marshalling then unmarshalling recovers the same model: "+m.String(), func() {
				data, err := json.Marshal(m)
				c.So(err, c.ShouldBeNil)
				var got Model
				c.So(json.Unmarshal(data, &got), c.ShouldBeNil)
				c.So(got, c.ShouldEqual, m)
			})
		}
	})
}

func TestModelUnmarshalUnknownNameErrors(t *testing.T) {
	c.Convey("Given a name that names no known model", t, func() {
		var m Model
		err := json.Unmarshal([]byte(`"DSO-9999"`), &m)
		c.Convey("Unmarshalling reports an error", func() {
			c.So(err, c.ShouldNotBeNil)
		})
	})
}

func TestSpecificationForModel2150MirrorsBindings2090(t *testing.T) {
	c.Convey("Given the 2090 and its unofficial 2150 sibling", t, func() {
		spec2090, ok := specificationForModel(ModelDSO2090)
		c.So(ok, c.ShouldBeTrue)
		spec2150, ok := specificationForModel(ModelDSO2150)
		c.So(ok, c.ShouldBeTrue)
		c.Convey("The 2150 shares every command binding with the 2090", func() {
			c.So(spec2150.Command, c.ShouldResemble, spec2090.Command)
		})
		c.Convey("But is marked experimental while the 2090 is not", func() {
			c.So(spec2090.Experimental, c.ShouldBeFalse)
			c.So(spec2150.Experimental, c.ShouldBeTrue)
		})
	})
}

func TestSpecificationForUnknownModel(t *testing.T) {
	c.Convey("Given a model with no matching specification", t, func() {
		_, ok := specificationForModel(ModelUnknown)
		c.Convey("specificationForModel reports failure", func() {
			c.So(ok, c.ShouldBeFalse)
		})
	})
}
