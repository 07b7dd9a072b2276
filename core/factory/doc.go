// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation. Remote charging backends and metrics sinks are
// built this way.
//
// Example usage:
//
//	reg := factory.NewRegistry[charging.RemoteChargingPool]()
//	reg.Register("virtual", func(conf map[string]any) (charging.RemoteChargingPool, error) {
//	    var c struct{ Pool string `json:"pool_id"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    id, err := model.ParseChargingPoolID(c.Pool)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return virtual.NewChargingPool(id), nil
//	})
package factory
